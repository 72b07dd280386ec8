// Package config loads editor and CLI settings from YAML or JSON files.
//
// Files are decoded into Values, a loosely typed map with forgiving
// accessors, and then folded over Default() to produce Settings:
//
//	settings, err := config.Load("flowcanvas.yaml")
//	if err != nil {
//	    return err
//	}
//	logger := settings.Logger(os.Stderr)
//
// String values may reference the environment as ${NAME}; an unset name is
// an error:
//
//	store:
//	  path: ${HOME}/.flowcanvas/flows.db
//
// Durations accept Go duration strings ("250ms"), or numbers of seconds.
package config
