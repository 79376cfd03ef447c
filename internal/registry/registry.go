// Package registry persists what the coordinator has learned about its
// nodes, so the host side keeps its network picture across restarts.
package registry

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/gob"

	badger "github.com/dgraph-io/badger/v3"
)

type NodeRegistry interface {
	GetNodes(ctx context.Context) ([]Node, error)
	GetNode(ctx context.Context, id uint8) (Node, error)
	SaveNode(ctx context.Context, node Node) error
	DeleteNode(ctx context.Context, id uint8) error
	Close(ctx context.Context) error
}

func NewNodeRegistry(dirname string) (NodeRegistry, error) {
	opt := badger.DefaultOptions(dirname)
	opt.ValueLogFileSize = 1024 * 1024 * 40
	opt.Logger = nil

	db, err := badger.Open(opt)
	if err != nil {
		return nil, err
	}

	return &nodeRegistry{
		db: db,
	}, nil
}

type nodeRegistry struct {
	db *badger.DB
}

func nodeKey(id uint8) []byte {
	key := make([]byte, 8)
	binary.LittleEndian.PutUint64(key, uint64(id))
	return key
}

func (r *nodeRegistry) GetNodes(ctx context.Context) ([]Node, error) {
	var ret []Node
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				var n Node
				dec := gob.NewDecoder(bytes.NewReader(v))
				if err := dec.Decode(&n); err != nil {
					return err
				}
				ret = append(ret, n)
				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return ret, nil
}

func (r *nodeRegistry) GetNode(ctx context.Context, id uint8) (Node, error) {
	var ret Node
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(nodeKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			dec := gob.NewDecoder(bytes.NewReader(v))
			return dec.Decode(&ret)
		})
	})

	if err != nil {
		return Node{}, err
	}

	return ret, nil
}

func (r *nodeRegistry) SaveNode(ctx context.Context, node Node) error {
	buf := bytes.Buffer{}
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(node); err != nil {
		return err
	}

	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(nodeKey(node.ID), buf.Bytes())
	})
}

func (r *nodeRegistry) DeleteNode(ctx context.Context, id uint8) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(nodeKey(id))
	})
}

func (r *nodeRegistry) Close(ctx context.Context) error {
	return r.db.Close()
}
