// Package lifecycle provides a reusable service lifecycle state machine.
//
// A Service is built from up to three hooks (init, connect, auth) and
// drives the state progression Created -> Initializing -> Offline ->
// Connecting -> Online -> Authenticating -> Ready, skipping the phases its
// type does not have. The hooks carry all transport and protocol logic;
// the Service contributes ordering, idempotent concurrent invocation, and
// graceful failure handling.
//
// # Usage
//
// Create a service from hooks:
//
//	svc, err := lifecycle.New(
//	    lifecycle.WithInit(func(ctx context.Context) error {
//	        return loadConfig()
//	    }),
//	    lifecycle.WithConnect(func(ctx context.Context, disconnect func()) error {
//	        return dial(ctx)
//	    }),
//	)
//	if err != nil {
//	    return err
//	}
//
//	state, _ := svc.Connect(ctx).Wait(ctx)
//	if state != lifecycle.StateReady {
//	    // connection failed; call Connect again to retry
//	}
//
// Phase attempts never fail with an error: a hook failure reverts the
// service to the phase's starting state and the attempt settles with that
// state. Retry is the caller's responsibility (see pkg/reconnect).
//
// # State Machine
//
// Transitions performed by the service:
//   - Created -> Initializing -> Offline (Ready for Local), back to Created on failure
//   - Offline -> Connecting -> Ready (Public) or Online (Private), back to Offline on failure
//   - Online -> Authenticating -> Ready, back to Online on failure
//   - Connecting/Online/Authenticating/Ready -> Offline via Disconnect
//   - Ready -> Online via the deauthenticate capability (Private only)
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
//
// See version.go for version constants that can be used programmatically.
package lifecycle
