// Package gateway serves the chat relay's HTTP API.
//
// POST /chat takes {"message": "..."} and answers {"reply": "..."} with
// the upstream completion, or a fixed message on failure. GET /health
// and GET /ready expose liveness and readiness. Every route runs behind
// the middleware chain of package middleware.
//
//	srv, err := gateway.NewServer(serverCfg, logger)
//	if err != nil {
//	    return err
//	}
//	srv.Setup(gateway.RouterConfig{Completer: client, Checker: checker})
//	go srv.Start(ctx)
//	defer srv.Stop(ctx)
package gateway
