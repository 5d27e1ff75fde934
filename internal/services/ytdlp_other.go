//go:build !unix

package services

import "os/exec"

func killProcessGroup(cmd *exec.Cmd) {}
