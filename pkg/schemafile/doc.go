// Package schemafile loads form schemas from JSON or YAML documents.
//
// A document declares named field fragments under "includes" and forms under
// "forms":
//
//	includes:
//	  menuItem:
//	    key: item
//	    type: section
//	    fields:
//	      - {key: name, type: string}
//	      - {key: url, type: string}
//	forms:
//	  site:
//	    rootName: Site
//	    fields:
//	      - {key: title, type: string}
//	      - {key: main, include: menuItem}
//
// A field carrying "include" is replaced by the named fragment. Keys set on
// the including field (key, title, description) win over the fragment's. A
// fragment that is a list of fields is spliced in place of an including field
// without a key. Includes are shared by every document of a filesystem.
package schemafile
