package ledger

import (
	"fmt"
	"regexp"
	"strconv"
)

// The reason of automatic entries is read back by older dashboards, so its
// format must stay "sold <product> x<qty>".
var saleReasonRe = regexp.MustCompile(`^sold (.+) x(\d+)$`)

func SaleReason(productName string, quantity int) string {
	return fmt.Sprintf("sold %s x%d", productName, quantity)
}

// ParseSaleReason is the inverse of SaleReason. It is used only for history
// written before entries carried a SaleRef.
func ParseSaleReason(reason string) (productName string, quantity int, ok bool) {
	m := saleReasonRe.FindStringSubmatch(reason)
	if m == nil {
		return "", 0, false
	}
	q, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], q, true
}
