// Package docsync embeds the document store and its full-text index in a Go
// program without running the HTTP server.
//
// Documents are written to the relational record store first and then to
// the search index; searches query the index for ids and hydrate them from
// the record store, newest first.
//
//	client, _ := docsync.New(ctx,
//	    docsync.WithPostgres("localhost", 5432, "docs", "secret", "docs"),
//	    docsync.WithRedis("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	created, _ := client.Create(ctx, docsync.Document{
//	    Rubrics:     []string{"news"},
//	    Text:        "hello world",
//	    CreatedDate: time.Now(),
//	})
//	docs, _ := client.Search(ctx, "hello", 10)
package docsync
