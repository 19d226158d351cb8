// Copyright 2025 SirSeer, LLC
//
// Licensed under the Business Source License 1.1 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://mariadb.com/bsl11
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package harvest

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/sirseerhq/sirseer-harvest/internal/state"
)

// DefaultMarker identifies solution links.
const DefaultMarker = "dailycodingproblem.com/solution"

var (
	bracketed     = regexp.MustCompile(`\[([^\[\]]*)\]`)
	problemNumber = regexp.MustCompile(`#(\d+)`)
	difficultyTag = regexp.MustCompile(`(?i)\[\s*(easy|medium|hard)\s*\]`)
)

// Problem is a numbered problem and its difficulty.
type Problem struct {
	ID         int
	Difficulty state.Difficulty
}

// LinksFromText returns the bracket-delimited substrings of body that
// contain marker, brackets stripped, in first-seen order. Links without a
// scheme are given https.
func LinksFromText(body, marker string) []string {
	var links []string
	seen := make(map[string]struct{})
	for _, m := range bracketed.FindAllStringSubmatch(body, -1) {
		candidate := strings.TrimSpace(m[1])
		if !strings.Contains(candidate, marker) {
			continue
		}
		link := withScheme(candidate)
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}
	return links
}

// LinksFromHTML returns the href values of anchors in doc that contain
// marker, in first-seen order.
func LinksFromHTML(doc, marker string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return nil, err
	}

	var links []string
	seen := make(map[string]struct{})
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.Contains(attr.Val, marker) {
					continue
				}
				link := withScheme(strings.TrimSpace(attr.Val))
				if _, ok := seen[link]; !ok {
					seen[link] = struct{}{}
					links = append(links, link)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return links, nil
}

// ProblemFromSubject extracts the problem id and difficulty from a message
// subject. The id is required; a missing difficulty tag means Easy.
func ProblemFromSubject(subject string) (Problem, bool) {
	m := problemNumber.FindStringSubmatch(subject)
	if m == nil {
		return Problem{}, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return Problem{}, false
	}

	difficulty := state.Easy
	if tag := difficultyTag.FindStringSubmatch(subject); tag != nil {
		if d, ok := state.ParseDifficulty(tag[1]); ok {
			difficulty = d
		}
	}
	return Problem{ID: id, Difficulty: difficulty}, true
}

// ProblemIDFromLink parses the trailing path segment of a link as a
// problem id.
func ProblemIDFromLink(link string) (int, bool) {
	u, err := url.Parse(link)
	if err != nil {
		return 0, false
	}
	id, err := strconv.Atoi(path.Base(strings.TrimRight(u.Path, "/")))
	if err != nil || id < 0 {
		return 0, false
	}
	return id, true
}

func withScheme(link string) string {
	if strings.Contains(link, "://") {
		return link
	}
	return "https://" + link
}
