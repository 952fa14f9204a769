package blog

import "errors"

// Repository and service errors.
var (
	ErrPostNotFound     = errors.New("post not found")
	ErrPostArchived     = errors.New("post is archived")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCommentNotFound  = errors.New("comment not found")
)
