package browser

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/slot-booker/internal/surface"
)

// roleSelectors maps an accessible role to the elements that carry it
// implicitly or explicitly.
var roleSelectors = map[string]string{
	"button":   `button,[role="button"],input[type="button"],input[type="submit"]`,
	"link":     `a[href],[role="link"]`,
	"checkbox": `input[type="checkbox"],[role="checkbox"]`,
	"dialog":   `dialog,[role="dialog"],[role="alertdialog"]`,
	"heading":  `h1,h2,h3,h4,h5,h6,[role="heading"]`,
	"textbox":  `input:not([type]),input[type="text"],input[type="email"],input[type="password"],textarea,[role="textbox"]`,
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// jsAll returns a JS expression evaluating to the array of elements l
// matches inside its parent's element (or the document), ignoring l's index.
func jsAll(l surface.Locator) string {
	root := "document"
	if p, ok := l.Parent(); ok {
		root = jsElement(p)
	}
	return fmt.Sprintf("(function(root){return root ? Array.from(root.querySelectorAll(%s)) : []})(%s)", jsString(l.CSS), root)
}

// jsElement returns a JS expression evaluating to the located element or null.
func jsElement(l surface.Locator) string {
	if l.IsRole() {
		return jsRole(l)
	}
	i, _ := l.Index()
	return fmt.Sprintf("(%s[%d] || null)", jsAll(l), i)
}

// jsRole matches the accessible name case-insensitively as a substring,
// or exactly when Exact is set.
func jsRole(l surface.Locator) string {
	sel, ok := roleSelectors[l.Role]
	if !ok {
		sel = fmt.Sprintf(`[role="%s"]`, l.Role)
	}
	var b strings.Builder
	b.WriteString("(function(){")
	fmt.Fprintf(&b, "const want = %s.trim().toLowerCase();", jsString(l.Name))
	fmt.Fprintf(&b, "const exact = %t;", l.Exact)
	fmt.Fprintf(&b, "const els = Array.from(document.querySelectorAll(%s));", jsString(sel))
	b.WriteString("const name = el => (el.getAttribute('aria-label') || el.innerText || el.value || '').trim().toLowerCase();")
	b.WriteString("const seen = el => { const r = el.getBoundingClientRect(); const s = getComputedStyle(el); return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none'; };")
	b.WriteString("const hits = els.filter(el => exact ? name(el) === want : name(el).includes(want));")
	b.WriteString("return hits.find(seen) || hits[0] || null;")
	b.WriteString("})()")
	return b.String()
}

func jsVisible(l surface.Locator) string {
	return fmt.Sprintf(`(function(el){
  if (!el) return false;
  const r = el.getBoundingClientRect();
  const s = getComputedStyle(el);
  return r.width > 0 && r.height > 0 && s.visibility !== 'hidden' && s.display !== 'none';
})(%s)`, jsElement(l))
}

func jsCount(l surface.Locator) string {
	return jsAll(l) + ".length"
}

func jsInnerText(l surface.Locator) string {
	return fmt.Sprintf(`(function(el){ return el ? {found: true, text: el.innerText} : {found: false, text: ""}; })(%s)`, jsElement(l))
}
