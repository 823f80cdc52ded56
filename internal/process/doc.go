// Package process starts and supervises the backend child process.
//
// The Supervisor pipes the child's standard streams, tracks it under a
// generated id and tears it down on shutdown:
//
//	sup := process.NewSupervisor()
//	defer sup.Shutdown(2 * time.Second)
//
//	proc, err := sup.Start("xi-core", exec.Command("xi-core"))
//	if err != nil {
//	    return err
//	}
//	tr := transport.NewStdio(proc.Stdin, proc.Stdout, proc.Stderr)
//
// Crashed backends are not restarted.
package process
