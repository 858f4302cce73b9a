package output

import (
	"io"
	"strconv"

	"github.com/bekosirs/bekoctl/internal/models"
)

// WriteProducts renders products as a table. The ASSIGNED column is added
// when withAssigned is set.
func WriteProducts(w io.Writer, products []models.Product, withAssigned bool) error {
	columns := []string{"ID", "NAME", "BRAND", "CATEGORY", "PRICE", "STATUS"}
	if withAssigned {
		columns = append(columns, "ASSIGNED")
	}
	t := NewTable(w, columns...)

	for i := range products {
		p := &products[i]
		row := []string{strconv.Itoa(p.ID), p.Name, p.Brand, p.CategoryName(), p.Price, p.Status}
		if withAssigned {
			row = append(row, p.AssignedDate)
		}
		t.Row(row...)
	}
	return t.Flush()
}
