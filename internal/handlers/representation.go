// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"fmt"
	"net/http"

	"blogapi/internal/models"
	"blogapi/internal/render"
	"blogapi/internal/service"
)

// postOperation names what a post request does.
type postOperation string

const (
	opList          postOperation = "list"
	opRetrieve      postOperation = "retrieve"
	opCreate        postOperation = "create"
	opUpdate        postOperation = "update"
	opPartialUpdate postOperation = "partial_update"
)

// postShape identifies a wire representation of a post.
type postShape int

const (
	shapeNone       postShape = iota
	shapePostWrite            // service.PostInput: writable fields, tags by id or name
	shapePostDetail           // postDetail: tags and blog expanded
)

func (s postShape) String() string {
	switch s {
	case shapePostWrite:
		return "post_write"
	case shapePostDetail:
		return "post_detail"
	default:
		return "none"
	}
}

// representation is the input and output shape of one operation.
type representation struct {
	in      postShape
	out     postShape
	partial bool
}

// postRepresentations is consulted once per request. Writes read the
// write shape but always answer with the detail shape, so clients see
// resolved tags and the generated slug.
var postRepresentations = map[postOperation]representation{
	opList:          {in: shapeNone, out: shapePostDetail},
	opRetrieve:      {in: shapeNone, out: shapePostDetail},
	opCreate:        {in: shapePostWrite, out: shapePostDetail},
	opUpdate:        {in: shapePostWrite, out: shapePostDetail},
	opPartialUpdate: {in: shapePostWrite, out: shapePostDetail, partial: true},
}

func representationFor(op postOperation) representation {
	rep, ok := postRepresentations[op]
	if !ok {
		panic(fmt.Sprintf("handlers: no representation for post operation %q", op))
	}
	return rep
}

// decodePost reads the request body in the input shape of op.
func decodePost(w http.ResponseWriter, r *http.Request, op postOperation) (service.PostInput, error) {
	var in service.PostInput
	if representationFor(op).in != shapePostWrite {
		return in, nil
	}
	err := render.Decode(w, r, &in)
	return in, err
}

// presentPost renders p in the output shape of op.
func presentPost(op postOperation, p *models.Post) any {
	switch out := representationFor(op).out; out {
	case shapePostDetail:
		return newPostDetail(p)
	default:
		panic(fmt.Sprintf("handlers: post operation %q has no output shape (%s)", op, out))
	}
}
