// Package matjson converts detector material between geometry, identifier
// keyed material maps and a JSON document.
//
// Material is attached to surfaces and volumes of a tracking geometry. Every
// element is addressed by a 64-bit identifier (see package geoid) packing its
// volume, boundary, layer, approach and sensitive indices. A document mirrors
// that hierarchy:
//
//	{
//	  "detector": {
//	    "volumes": {
//	      "1": {
//	        "name": "Beampipe",
//	        "geoid": 72057594037927936,
//	        "boundaries": {"2": {"type": "homogeneous", "geoid": ..., "data": [0.8, 352.8, 407, 28.03, 14, 0.0023]}},
//	        "layers": {"2": {"geoid": ..., "sensitive": {"7": {...}}, "approach": {...}, "representing": {...}}},
//	        "material": {...}
//	      }
//	    }
//	  },
//	  "geoversion": "undefined"
//	}
//
// Every key is configurable through [Config]. Material leaves are proto
// (binning only), homogeneous (one property tuple) or binned (bin0/bin1 axes
// plus a bins1 x bins0 matrix of tuples). An empty tuple is vacuum.
//
// # Basic Usage
//
// Export the material of a geometry:
//
//	conv, err := matjson.New(matjson.DefaultConfig(), matjson.WithLogger(logger))
//	doc, err := conv.GeometryToDocument(ctx, world)
//	err = matjson.WriteDocument(os.Stdout, doc)
//
// Import material maps:
//
//	doc, err := matjson.ReadAny(f)
//	maps, err := conv.DocumentToMaps(ctx, doc)
//	m := maps.Surfaces[id]
//
// Setting Config.WriteData to false exports a skeleton that carries the
// structure and binning but no values, for filling in externally.
//
// # Errors
//
// Import errors carry the key path of the failing entry as a [*PathError].
// The default [FailFast] policy aborts on the first bad entry; [BestEffort]
// returns the good entries together with an [*EntryErrors].
//
// # Container
//
// [WriteContainer] and [ReadContainer] wrap a document in a 24-byte header
// followed by a payload compressed with ZIP, Zstandard, LZ4 or Brotli.
// [ReadAny] accepts either form. Sizes are bounded by [Limits] to guard
// against decompression bombs.
package matjson
