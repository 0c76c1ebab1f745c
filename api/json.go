package api

import (
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/Skryldev/restfull-books/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errNotObject = errors.New("request body must be a JSON object")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r io.Reader, v any) error {
	return json.NewDecoder(r).Decode(v)
}

// decodeFieldUpdates reads a flat JSON object and returns its members in
// document order. Values keep their decoded JSON type.
func decodeFieldUpdates(r io.Reader) ([]service.FieldUpdate, error) {
	iter := jsoniter.Parse(json, r, 512)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, errNotObject
	}

	var updates []service.FieldUpdate
	iter.ReadMapCB(func(it *jsoniter.Iterator, key string) bool {
		updates = append(updates, service.FieldUpdate{Name: key, Value: it.Read()})
		return it.Error == nil
	})
	if iter.Error != nil {
		return nil, iter.Error
	}
	return updates, nil
}
