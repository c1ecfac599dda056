package dummydb

import (
	"sort"

	"github.com/dkamau/sahihi/core/document"
)

type documentRepository struct {
	db *documentTable

	pkCount int
}

func NewDocumentRepository(db *DB) document.Repository {
	return &documentRepository{db: db.document}
}

func (repo *documentRepository) query() []document.Document {
	docs := make([]document.Document, 0, len(repo.db.table))
	for _, d := range repo.db.table {
		docs = append(docs, *d)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs
}

func (repo *documentRepository) CreateDocument(doc document.Document) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.pkCount++
	doc.ID = repo.pkCount
	repo.db.table[doc.ID] = &doc
	return doc, nil
}

func (repo *documentRepository) GetDocumentByToken(token string) (document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, doc := range repo.db.table {
		if doc.Token == token {
			return *doc, nil
		}
	}
	return document.Document{}, document.ErrNotFound
}

func (repo *documentRepository) QueryAllDocuments() ([]document.Document, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *documentRepository) UpdateDocument(doc document.Document) (document.Document, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	existing, ok := repo.db.table[doc.ID]
	if !ok {
		return document.Document{}, document.ErrNotFound
	}
	if existing.Signed() {
		// the store, not the caller, is the source of truth for idempotency
		return document.Document{}, document.ErrAlreadySigned
	}
	repo.db.table[doc.ID] = &doc
	return doc, nil
}
