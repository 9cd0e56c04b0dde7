package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
)

// export writes the whole store snapshot, keyed by storage key, to path or to the cli output.
func (cli *commandLine) export(path string) (err error) {
	svc, err := cli.openService()
	if err != nil {
		return err
	}

	var w io.Writer = cli.out
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating export file")
		}
		defer func() {
			if cErr := f.Close(); cErr != nil && err == nil {
				err = errors.Wrap(cErr, "closing export file")
			}
		}()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err = enc.Encode(svc.Store().Snapshot()); err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}
	if path != "" {
		fmt.Fprintf(cli.out, "snapshot written to %s\n", path)
	}
	return nil
}
