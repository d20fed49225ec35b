// Package kv implements the repository interfaces on top of store.Store
// using the Redis-style key layout:
//
//	userid, postid          counters
//	users                   hash  username -> user id
//	user:{id}               hash  username, hash, created
//	post:{id}               hash  userid, username, message, timestamp (epoch ms)
//	following:{id}          set   ids the user follows
//	followers:{id}          set   ids following the user
//	timeline:{id}           list  post ids, newest first
package kv

import (
	"fmt"
	"strconv"
)

const (
	userIDCounter = "userid"
	postIDCounter = "postid"
	usersIndexKey = "users"
)

func userKey(id int64) string      { return "user:" + strconv.FormatInt(id, 10) }
func postKey(id int64) string      { return "post:" + strconv.FormatInt(id, 10) }
func followingKey(id int64) string { return "following:" + strconv.FormatInt(id, 10) }
func followersKey(id int64) string { return "followers:" + strconv.FormatInt(id, 10) }
func timelineKey(id int64) string  { return "timeline:" + strconv.FormatInt(id, 10) }

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseIDs(key string, raw []string) ([]int64, error) {
	ids := make([]int64, 0, len(raw))
	for _, v := range raw {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed id %q in %s: %w", v, key, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
