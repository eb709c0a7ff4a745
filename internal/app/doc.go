// Package app wires the flow dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from defaults, the YAML file and FLOW_* variables
//  2. Initialize logging and OpenTelemetry
//  3. Create the session store, pipeline and services
//  4. Set up HTTP handlers and middleware
//  5. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(nil)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// # Graceful Shutdown
//
// Run returns after SIGINT or SIGTERM once in-flight requests finish, the
// session sweeper stops and telemetry is flushed.
//
// The package never calls os.Exit; main decides the exit code.
package app
