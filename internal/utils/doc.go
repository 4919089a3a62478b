// Package utils holds the low-level helpers shared by the provider and server
// packages: JSON-over-HTTP calls to LLM APIs ([DoPostSync], [DoPostStream]),
// a Server-Sent Events reader ([SSEScanner]), and small string, pointer and
// timing helpers.
package utils
