// Package model defines the values exchanged with the social service.
//
// Users, posts and friend requests are decoded from the server's JSON
// responses and never edited locally. RelationshipStatus is derived per
// candidate by the relationship package and is never persisted.
package model
