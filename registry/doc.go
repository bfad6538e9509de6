// Package registry handles the wire formats of the applications registry.
//
// It covers the two documents the registry is exchanged in and the transport
// used to fetch the shared copy:
//
//   - the JSON registry document, fetched with Client and linted with
//     SchemaValidator
//   - the companion script document, which assigns the same data to two
//     top-level bindings so a static page can load it with a script tag
//     (EncodeScript, DecodeScript)
//
// # Document Layout
//
// A registry document is either a bare array of entries or an object:
//
//	{
//	  "version": "v2025.02.14",
//	  "updated": "2025-02-14T09:30:00.000Z",
//	  "updatedBy": "it-ops",
//	  "apps": [ { "key": "intranet", "label": "Intranet", ... } ]
//	}
//
// Older documents use "items" instead of "apps" or nest metadata under
// "meta". Normalization into the canonical model lives in the parent
// package.
//
// # Usage
//
//	client := registry.NewClient("https://intranet.example/data/app-links.json")
//	data, err := client.FetchDocument(ctx, true)
//	if err != nil {
//	    if registry.IsNotFound(err) { ... }
//	}
package registry
