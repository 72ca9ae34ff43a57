// Package layout provides the catalog of named sub-model placement layouts.
//
// A [Layout] is an ordered set of [Position] entries. Each entry places one
// copy of a segment's model with a local offset, scale and rotation applied on
// top of the segment's own scale and position. A single-model segment uses the
// "default" layout, which holds one identity position.
//
// Layouts are defined once and shared by every model that lists them:
//
//	layout "quad" {
//	  title = "Quad"
//	  position {
//	    position = [ 1, 0,  1]
//	    scale    = [0.5, 1, 0.5]
//	  }
//	  position {
//	    position = [-1, 0,  1]
//	    scale    = [0.5, 1, 0.5]
//	  }
//	  position {
//	    position = [ 1, 0, -1]
//	    scale    = [0.5, 1, 0.5]
//	  }
//	  position {
//	    position = [-1, 0, -1]
//	    scale    = [0.5, 1, 0.5]
//	  }
//	}
//
// # Catalog
//
// [Catalog] owns the name-keyed set. It is an explicit value rather than a
// process-wide singleton: create one per configuration source with
// [NewCatalog], call [Catalog.Load] (or let the first [Catalog.Find] do it),
// and [Catalog.Reload] after the source changes. Lookups of missing names are
// logged and return nil so that a single broken part degrades instead of
// aborting the whole load.
package layout
