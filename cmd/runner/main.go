package main

import (
	"os"

	"github.com/architeacher/svc-task-runner/internal/runtime"
)

func main() {
	os.Exit(runtime.New().Run())
}
