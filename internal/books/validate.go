package books

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"governance-gateway/middleware/failure"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
	minYear      = 1000
)

var (
	titlePattern  = regexp.MustCompile(`^[\p{Thai}a-zA-Z0-9\s\-_.,!?()]*$`)
	authorPattern = regexp.MustCompile(`^[\p{Thai}a-zA-Z0-9\s\-_.]*$`)
	genrePattern  = regexp.MustCompile(`^[\p{Thai}a-zA-Z0-9\s\-_]*$`)
)

// SearchParams são os parâmetros de busca da listagem; com algum deles a rota
// cai na classe intensive.
var SearchParams = []string{"title", "author"}

// ParseQuery lê filtros e paginação da listagem. page/limit não numéricos
// voltam ao padrão; limit acima do máximo é truncado.
func ParseQuery(q url.Values) (Filter, Page, error) {
	v := &failure.Validation{}

	f := Filter{
		Title:  strings.TrimSpace(q.Get("title")),
		Author: strings.TrimSpace(q.Get("author")),
		Genre:  strings.TrimSpace(q.Get("genre")),
	}
	if !titlePattern.MatchString(f.Title) {
		v.Add("title", "pattern", "title must not contain special characters except - _ . , ! ? ( )")
	}
	if !authorPattern.MatchString(f.Author) {
		v.Add("author", "pattern", "author must not contain special characters except - _ .")
	}
	if !genrePattern.MatchString(f.Genre) {
		v.Add("genre", "pattern", "genre must not contain special characters except - _")
	}

	p := Page{
		Page:  intOr(q.Get("page"), defaultPage),
		Limit: intOr(q.Get("limit"), defaultLimit),
	}
	if p.Page < 1 {
		v.Add("page", "min", "page must not be less than 1")
	}
	if p.Limit < 1 {
		v.Add("limit", "min", "limit must not be less than 1")
	}
	p.Limit = min(p.Limit, maxLimit)

	return f, p, v.Err()
}

func intOr(raw string, def int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func validateCreate(in *CreateInput) error {
	v := &failure.Validation{}

	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	if in.Title == "" {
		v.Add("title", "required", "title must not be empty")
	}
	if in.Author == "" {
		v.Add("author", "required", "author must not be empty")
	}
	checkYear(v, in.PublishedYear)
	return v.Err()
}

func validateUpdate(in *UpdateInput) error {
	v := &failure.Validation{}

	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		in.Title = &t
		if t == "" {
			v.Add("title", "required", "title must not be empty")
		}
	}
	if in.Author != nil {
		a := strings.TrimSpace(*in.Author)
		in.Author = &a
		if a == "" {
			v.Add("author", "required", "author must not be empty")
		}
	}
	checkYear(v, in.PublishedYear)
	return v.Err()
}

func checkYear(v *failure.Validation, year *int) {
	if year != nil && *year < minYear {
		v.Add("published_year", "min", "published_year must not be less than 1000")
	}
}
