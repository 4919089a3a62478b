// Package prompt holds the system prompts used to generate content and a
// small {placeholder} formatter for them.
//
//	system, err := prompt.Get(prompt.Feed, map[string]string{
//		"language":       "English",
//		"historySection": prompt.HistorySection(seenTitles),
//	})
package prompt
