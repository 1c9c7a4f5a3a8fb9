// Command npl is a short alias that execs netplanner with the same arguments.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

func main() {
	bin, err := exec.LookPath("netplanner")
	if err != nil {
		fmt.Fprintln(os.Stderr, "npl: netplanner not found on PATH")
		os.Exit(1)
	}
	if err := syscall.Exec(bin, append([]string{"netplanner"}, os.Args[1:]...), os.Environ()); err != nil {
		fmt.Fprintf(os.Stderr, "npl: %v\n", err)
		os.Exit(1)
	}
}
