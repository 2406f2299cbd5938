package model

import "strings"

// FilterShown removes elements that are not shown. Hidden subtrees are
// dropped whole since nothing below a hidden node can be shown.
func FilterShown(elements []Element) []Element {
	var result []Element
	for _, el := range elements {
		if !el.Shown {
			continue
		}
		filtered := el
		filtered.Children = FilterShown(el.Children)
		result = append(result, filtered)
	}
	return result
}

// FilterByText filters elements to only those whose text or id contains
// the given text (case-insensitive). Parent elements are kept if any
// descendant matches.
func FilterByText(elements []Element, text string) []Element {
	if text == "" {
		return elements
	}
	textLower := strings.ToLower(text)
	var result []Element
	for _, el := range elements {
		matched := textMatchesElement(el, textLower)
		childMatches := FilterByText(el.Children, text)

		if matched || len(childMatches) > 0 {
			filtered := el
			filtered.Children = childMatches
			result = append(result, filtered)
		}
	}
	return result
}

func textMatchesElement(el Element, textLower string) bool {
	return strings.Contains(strings.ToLower(el.Text), textLower) ||
		strings.Contains(strings.ToLower(el.ID), textLower)
}

// FilterByClass keeps elements whose short or full class name is in
// classes. Non-matching elements with matching descendants are replaced
// by those descendants.
func FilterByClass(elements []Element, classes []string) []Element {
	if len(classes) == 0 {
		return elements
	}
	set := make(map[string]bool, len(classes))
	for _, c := range classes {
		set[c] = true
	}
	return filterByClass(elements, set)
}

func filterByClass(elements []Element, set map[string]bool) []Element {
	var result []Element
	for _, el := range elements {
		children := filterByClass(el.Children, set)
		if set[el.Class] || set[shortClass(el.Class)] {
			filtered := el
			filtered.Children = children
			result = append(result, filtered)
		} else if len(children) > 0 {
			result = append(result, children...)
		}
	}
	return result
}

// FindFlat returns the flat elements matching text, case-insensitively,
// on text or id. Exact requires the whole field to match.
func FindFlat(elements []FlatElement, text string, exact bool) []FlatElement {
	textLower := strings.ToLower(text)
	var out []FlatElement
	for _, el := range elements {
		t, id := strings.ToLower(el.Text), strings.ToLower(el.ID)
		var ok bool
		if exact {
			ok = t == textLower || id == textLower || strings.TrimPrefix(id, "id/") == textLower
		} else {
			ok = strings.Contains(t, textLower) || strings.Contains(id, textLower)
		}
		if ok {
			out = append(out, el)
		}
	}
	return out
}
