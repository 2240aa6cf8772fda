// Package books é o recurso de exemplo: handlers que só devolvem dado ou
// error e deixam a resposta com o normalizador.
package books

import "time"

type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	PublishedYear *int      `json:"published_year"`
	Genre         *string   `json:"genre"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Filter é case-insensitive por substring; campos vazios não filtram.
type Filter struct {
	Title  string
	Author string
	Genre  string
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

type PageMeta struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

type Paginated struct {
	Data []Book   `json:"data"`
	Meta PageMeta `json:"meta"`
}

type CreateInput struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	PublishedYear *int    `json:"published_year"`
	Genre         *string `json:"genre"`
}

// UpdateInput é parcial: nil mantém o valor atual.
type UpdateInput struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	PublishedYear *int    `json:"published_year"`
	Genre         *string `json:"genre"`
}
