// Package client sits between the content service and an ai.Provider. It fills
// in default model, system prompt and sampling settings, and runs every call
// through a chain of middlewares (see the middleware subpackage) with an
// optional observability layer on the outside.
//
//	c, err := client.New(openai.New(),
//	    client.WithDefaultModel("gpt-4"),
//	    client.WithObserver(slogobs.New()),
//	    client.WithMiddleware(middleware.NewTimeoutMiddleware(time.Minute)),
//	)
package client
