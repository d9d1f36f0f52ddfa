// Package compose renders a reply plan into SMS segments. Splitting prefers
// sentence boundaries, falls back to word boundaries, and hard-splits only
// words longer than a whole segment, so no word is ever broken across
// messages unless it could not fit in one.
package compose
