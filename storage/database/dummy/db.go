package dummydb

import (
	"sync"

	"github.com/dkamau/sahihi/core/document"
)

type (
	DB struct {
		document *documentTable
	}

	documentTable struct {
		mutex sync.RWMutex
		table map[int]*document.Document
	}
)

func Open() (*DB, error) {
	db := &DB{
		document: &documentTable{table: make(map[int]*document.Document)},
	}
	return db, nil
}
