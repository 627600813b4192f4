/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import "strings"

const (
	hashSuffix        = "_h"
	historySuffix     = "_history"
	collectionsSuffix = ":collections"
	indexSeparator    = "::"
)

// SanitizeID strips everything up to and including the last ':' so that a key
// passed where an identifier is expected re-keys to the same entity.
func SanitizeID(id string) string {
	if i := strings.LastIndexByte(id, ':'); i >= 0 {
		return id[i+1:]
	}
	return id
}

// PrimaryKey returns "[parentKey:]className:id".
func PrimaryKey(className, id, parentKey string) string {
	key := className + ":" + SanitizeID(id)
	if parentKey != "" {
		return parentKey + ":" + key
	}
	return key
}

// HashKey returns the key of the attribute hash for a primary key.
func HashKey(primaryKey string) string {
	return primaryKey + hashSuffix
}

// HistoryKey returns the key of the snapshot log for a primary key.
func HistoryKey(primaryKey string) string {
	return primaryKey + historySuffix
}

// CollectionsKey returns the key of the set of collection names owned by a hash key.
func CollectionsKey(hashKey string) string {
	return hashKey + collectionsSuffix
}

// CollectionKey returns the key of the member set of one named collection.
func CollectionKey(hashKey, name string) string {
	return hashKey + ":" + name
}

// IndexKey returns "[parentKey:]plural::index".
func IndexKey(parentKey, plural, index string) string {
	key := plural + indexSeparator + index
	if parentKey != "" {
		return parentKey + ":" + key
	}
	return key
}

// PrimaryFromHash strips the hash suffix. Keys without it are returned as is.
func PrimaryFromHash(key string) string {
	return strings.TrimSuffix(key, hashSuffix)
}

// toHashKey accepts a primary or hash key and returns the hash key.
func toHashKey(key string) string {
	if strings.HasSuffix(key, hashSuffix) {
		return key
	}
	return HashKey(key)
}
