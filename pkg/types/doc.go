// Package types defines the data model exchanged with the NocoDB backend:
// configuration, bases, tables, columns, views, schema-less records built
// from tagged-union values, query options, and the single error type
// returned by every client operation.
package types
