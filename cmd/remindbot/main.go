package main

import (
	"github.com/sirupsen/logrus"
	"os"
	_ "time/tzdata"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logrus.WithError(err).Error("remindbot stopped")
		os.Exit(1)
	}
}
