package main

const (
	// defaultPageLimit é o tamanho de página quando o cliente não informa limit
	defaultPageLimit = 10
	// maxPageLimit é o tamanho máximo de página aceito
	maxPageLimit = 100
)

// Page descreve o recorte de paginação aplicado a uma listagem
// HasNext é calculado sobre o total filtrado, não sobre a página retornada:
// uma página cheia no fim do resultado reporta has_next = false
type Page struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	HasNext bool `json:"has_next"`
}

// NewPage normaliza limit/offset e calcula o descritor de página
func NewPage(limit, offset, total int) Page {
	limit = normalizeLimit(limit)
	offset = normalizeOffset(offset)

	return Page{
		Limit:  limit,
		Offset: offset,
		Total:  total,
		// Subtração em vez de soma: offset vem direto da query string e
		// offset+limit estoura para valores próximos de MaxInt
		HasNext: offset < total && total-offset > limit,
	}
}

// normalizeLimit aplica o default e o teto de tamanho de página
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}

// normalizeOffset trunca offsets negativos em zero
func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
