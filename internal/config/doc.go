// Package config provides configuration for the lazystate CLI.
//
// The configuration is stored in lazystate.json in the working directory.
// The file is optional; missing fields fall back to defaults.
//
// # Configuration File Structure
//
//	{
//	  "serve": {
//	    "addr": "localhost:7070",
//	    "maxBodyBytes": 1048576
//	  },
//	  "metrics": {
//	    "namespace": "lazystate"
//	  },
//	  "log": {
//	    "level": "info",
//	    "format": "text"
//	  },
//	  "debug": false
//	}
//
// # Environment
//
// A .env file next to lazystate.json is loaded into the process environment
// without overriding existing variables. The following variables then
// override the file:
//
//	LAZYSTATE_ADDR
//	LAZYSTATE_METRICS_NAMESPACE
//	LAZYSTATE_LOG_LEVEL
//	LAZYSTATE_LOG_FORMAT
//	LAZYSTATE_DEBUG
package config
