// Package hcl provides the HCL implementation of config.Loader and renders
// session snapshots back to HCL.
//
// A configuration file may hold any of these top-level blocks:
//
//	server { listen = ":4000" }
//	store  { backend = "redis"  redis_url = "redis://localhost:6379/0"  ttl = "24h" }
//	engine { max_cascade_depth = 64 }
//	seed "demo" {
//	  node "ds" {
//	    kind     = "Data Set"
//	    settings = { url = "https://example.com/iris.tab" }
//	  }
//	  node "info" { kind = "Info" }
//	  connection { source = "ds"  target = "info" }
//	}
//
// Files are read in the order given; directories are walked for *.hcl files.
// Later files override scalar settings, and seeds accumulate.
package hcl
