package main

import (
	"context"
	"flag"
	"os"

	"github.com/golang/glog"
)

func main() {
	// glog only logs to files unless told otherwise.
	_ = flag.Set("logtostderr", "true")
	err := run(context.Background(), os.Args[1:], os.Stdout)
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
