// Package jsondb fetches the region-partitioned JSON title lists published at
// github.com/hax0kartik/3dsdb.
//
// The feed is split into one list_<CODE>.json file per Region. Client.Releases
// fetches a single region; Client.AllReleases fetches every region at once
// and concatenates the results in the order returned by Regions.
//
//	c := jsondb.New(transport.NewColly(transport.Config{}))
//	byID, err := c.ReleasesMap(ctx, jsondb.GB)
//	if err != nil {
//		return err
//	}
//	fmt.Println(byID["0004000000030200"].Name)
package jsondb
