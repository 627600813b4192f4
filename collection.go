/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kvobject

import (
	"context"
	"fmt"
	"sort"

	kverrors "github.com/suparena/kvobject/errors"
)

// Collection is a named set of child hash keys owned by one entity.
type Collection struct {
	name  string
	owner *Entity
}

func newCollection(name string, owner *Entity) *Collection {
	return &Collection{name: name, owner: owner}
}

func (c *Collection) Name() string { return c.name }

// Key returns the store key of the member set.
func (c *Collection) Key() string {
	return CollectionKey(c.owner.HashKey(), c.name)
}

// Append registers the collection name on the owner and adds memberKey.
func (c *Collection) Append(ctx context.Context, memberKey string) error {
	s := c.owner.store()
	if err := s.SAdd(ctx, c.owner.CollectionsKey(), c.name); err != nil {
		return err
	}
	return s.SAdd(ctx, c.Key(), toHashKey(memberKey))
}

// Replace swaps the member set for value, which may be a []string of keys,
// a []*Entity or another *Collection.
func (c *Collection) Replace(ctx context.Context, value any) error {
	var members []string
	switch v := value.(type) {
	case nil:
	case []string:
		for _, k := range v {
			members = append(members, toHashKey(k))
		}
	case []*Entity:
		for _, e := range v {
			members = append(members, e.HashKey())
		}
	case *Collection:
		var err error
		if members, err = v.Members(ctx); err != nil {
			return err
		}
	default:
		return kverrors.NewValidationError(c.name, fmt.Sprintf("cannot replace collection with %T", value))
	}

	s := c.owner.store()
	if err := s.Del(ctx, c.Key()); err != nil {
		return err
	}
	if err := s.SAdd(ctx, c.owner.CollectionsKey(), c.name); err != nil {
		return err
	}
	return s.SAdd(ctx, c.Key(), members...)
}

// Members returns the member hash keys in sorted order.
func (c *Collection) Members(ctx context.Context) ([]string, error) {
	members, err := c.owner.store().SMembers(ctx, c.Key())
	if err != nil {
		return nil, err
	}
	sort.Strings(members)
	return members, nil
}

// Contains reports whether key (primary or hash) is a member.
func (c *Collection) Contains(ctx context.Context, key string) (bool, error) {
	return c.owner.store().SIsMember(ctx, c.Key(), toHashKey(key))
}

// Len returns the number of members.
func (c *Collection) Len(ctx context.Context) (int, error) {
	members, err := c.owner.store().SMembers(ctx, c.Key())
	return len(members), err
}

// Entities resolves every member. Members with no backing entity are skipped.
func (c *Collection) Entities(ctx context.Context) ([]*Entity, error) {
	members, err := c.Members(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*Entity, 0, len(members))
	for _, m := range members {
		e, err := c.owner.class.mapper.FindByKey(ctx, m)
		if err != nil {
			return nil, err
		}
		if e != nil {
			out = append(out, e)
		}
	}
	return out, nil
}

// save resolves each member and saves it.
func (c *Collection) save(ctx context.Context, seen map[string]bool) error {
	members, err := c.Members(ctx)
	if err != nil {
		return err
	}
	for _, m := range members {
		if seen[m] {
			continue
		}
		e, err := c.owner.class.mapper.FindByKey(ctx, m)
		if err != nil {
			return err
		}
		if e == nil {
			continue
		}
		if err := e.save(ctx, seen); err != nil {
			return err
		}
	}
	return nil
}
