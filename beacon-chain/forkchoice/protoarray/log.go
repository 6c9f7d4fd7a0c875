package protoarray

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "forkchoice-protoarray")
