package comanda

import (
	"fmt"
	"strings"
	"time"

	"padaria-backend/internal/models"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	EncodingUTF8  = "utf8"
	EncodingCP850 = "cp850"

	ticketWidth = 40
)

// RenderTicket lays out the kitchen/customer slip for a 40 column thermal printer.
func RenderTicket(c *models.Comanda, now time.Time) string {
	rule := strings.Repeat("=", ticketWidth)
	thin := strings.Repeat("-", ticketWidth)

	var b strings.Builder
	b.WriteString(rule + "\n")
	b.WriteString(center("PADARIA") + "\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Comanda: #%d\n", c.ID)
	if c.Table != nil {
		fmt.Fprintf(&b, "Mesa: %d\n", c.Table.Number)
	}
	fmt.Fprintf(&b, "Data: %s\n", now.Format("02/01/2006 15:04"))
	b.WriteString(thin + "\n")
	b.WriteString("ITENS:\n")

	for _, it := range c.Items {
		name := fmt.Sprintf("product #%d", it.ProductID)
		if it.Product != nil {
			name = it.Product.Name
		}
		fmt.Fprintf(&b, "%dx %s\n", it.Quantity, name)
		fmt.Fprintf(&b, "   R$ %s x %d = R$ %s\n", it.UnitPrice.StringFixed(2), it.Quantity, it.Subtotal().StringFixed(2))
		if it.Notes != "" {
			fmt.Fprintf(&b, "   Obs: %s\n", it.Notes)
		}
	}

	b.WriteString(thin + "\n")
	fmt.Fprintf(&b, "TOTAL: R$ %s\n", c.Total.StringFixed(2))
	if c.Notes != "" {
		fmt.Fprintf(&b, "Obs: %s\n", c.Notes)
	}
	b.WriteString(rule + "\n")
	b.WriteString(center("Obrigado pela preferência!") + "\n")
	b.WriteString(rule + "\n")
	return b.String()
}

func center(s string) string {
	n := len([]rune(s))
	if n >= ticketWidth {
		return s
	}
	return strings.Repeat(" ", (ticketWidth-n)/2) + s
}

// EncodeCP850 converts the ticket to the code page most ESC/POS printers
// default to. Runes outside the code page are replaced, not rejected.
func EncodeCP850(s string) ([]byte, error) {
	enc := encoding.ReplaceUnsupported(charmap.CodePage850.NewEncoder())
	return enc.Bytes([]byte(s))
}
