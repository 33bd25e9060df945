// Package hcl provides the HCL implementation of the configuration loading
// and data conversion interfaces defined in the config package.
//
// A pipeline file looks like this:
//
//	pipeline "launch" {
//	  input   = "1.20.1"
//	  timeout = "5m"
//
//	  task "env" {
//	    runner = "env_vars"
//	    show   = false
//	  }
//
//	  combo "download" {
//	    weight = 3
//
//	    task "manifest" {
//	      runner        = "http_request"
//	      reload_window = "30s"
//	      arguments {
//	        url = "https://example.invalid/${input}.json"
//	      }
//	    }
//	  }
//	}
//
// Blocks are decoded through explicit body schemas so that steps keep their
// source order. Argument expressions are kept unevaluated in the model and
// evaluated per task run, with the run input available as `input` and the
// process environment as `env`.
package hcl
