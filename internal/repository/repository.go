// Package repository implements per-collection persistence over the document
// store. Every mutation is scoped to a single record; cross-record consistency
// is composed sequentially by the services.
package repository

import "go.mongodb.org/mongo-driver/mongo/options"

func optionsAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}
