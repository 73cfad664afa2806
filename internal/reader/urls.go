package reader

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/unvotes-crawler/internal/crawler"
)

// DefaultRoot is the digital library origin every relative link resolves against.
const DefaultRoot = "https://digitallibrary.un.org"

const gatewayPath = "/search?cc=Voting+Data&ln=en&c=Voting+Data"

// GatewayURL returns the collection landing page below root.
func GatewayURL(root string) string {
	return strings.TrimSuffix(root, "/") + gatewayPath
}

// ListURL returns the search page holding the given 1-based page of a year.
func ListURL(root string, year, page int) string {
	first := (page-1)*crawler.PageSize + 1
	return fmt.Sprintf("%s&fct__3=%d&rg=%d&jrec=%d", GatewayURL(root), year, crawler.PageSize, first)
}
