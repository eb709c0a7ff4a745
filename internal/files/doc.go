// Package files locates readings files on disk and writes report artifacts.
//
// Discovery lists the spreadsheets in a directory that the parser accepts,
// oldest first, so batch tools can pick the latest export:
//
//	discovery := files.NewDiscovery(logger)
//	latest, err := discovery.Latest("exports")
//
// Manager writes output files, creating parent directories as needed.
package files
