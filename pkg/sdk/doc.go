// Package roadsafe is a Go client for the roadsafe recommendation API.
//
// The API ranks IRC road-safety clauses against a free-text description of a
// road problem and can attach a short model-generated explanation.
//
//	client, _ := roadsafe.New("http://localhost:5000")
//	rec, err := client.Recommend(ctx, "faded zebra crossing near school", roadsafe.TopN(3))
//	for _, m := range rec.Matches {
//	    fmt.Println(m.Score, m.Clause)
//	}
//
// API errors unwrap to the sentinels in this package, so callers can use
// errors.Is(err, roadsafe.ErrInvalidRequest).
package roadsafe
