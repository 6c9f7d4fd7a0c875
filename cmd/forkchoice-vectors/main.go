// Package main emits the fork choice conformance suites as YAML files so
// other clients can replay them against their own engines.
package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sextantlabs/sextant/beacon-chain/forkchoice/protoarray/scenarios"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/yaml.v2"
)

var log = logrus.WithField("prefix", "forkchoice-vectors")

var (
	outputDirFlag = &cli.StringFlag{
		Name:  "output-dir",
		Usage: "directory the suite YAML files are written to",
		Value: ".",
	}
	skipRunFlag = &cli.BoolFlag{
		Name:  "skip-run",
		Usage: "write the suites without replaying them first",
	}
)

func main() {
	app := cli.App{}
	app.Name = "forkchoice-vectors"
	app.Usage = "writes the fork choice conformance suites as YAML test vectors"
	app.Flags = []cli.Flag{
		outputDirFlag,
		skipRunFlag,
	}
	app.Action = writeVectors
	app.Before = func(_ *cli.Context) error {
		formatter := new(prefixed.TextFormatter)
		formatter.TimestampFormat = "2006-01-02 15:04:05"
		formatter.FullTimestamp = true
		logrus.SetFormatter(formatter)
		return nil
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("Could not write test vectors")
	}
}

func writeVectors(cliCtx *cli.Context) error {
	outputDir := cliCtx.String(outputDirFlag.Name)
	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return errors.Wrapf(err, "could not create directory %s", outputDir)
	}
	for _, def := range scenarios.All() {
		if !cliCtx.Bool(skipRunFlag.Name) {
			if err := def.Run(context.Background()); err != nil {
				return errors.Wrapf(err, "suite %s failed", def.Name)
			}
		}
		path, err := writeSuite(outputDir, def)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"suite": def.Name,
			"file":  path,
		}).Info("Wrote test vector")
	}
	return nil
}

// writeSuite marshals a single suite into <dir>/<name>.yaml.
func writeSuite(dir string, def *scenarios.Definition) (string, error) {
	out, err := yaml.Marshal(def)
	if err != nil {
		return "", errors.Wrapf(err, "could not marshal suite %s", def.Name)
	}
	path := filepath.Join(dir, def.Name+".yaml")
	if err := os.WriteFile(path, out, 0600); err != nil {
		return "", errors.Wrapf(err, "could not write %s", path)
	}
	return path, nil
}
