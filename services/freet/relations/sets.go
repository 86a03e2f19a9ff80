// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package relations

// Set-membership edits over the string lists stored in records.
//
// Entries compare exactly. Callers store canonical spellings (the username
// as recorded on the account or view), so an edit with the same key always
// finds the same entry. Every edit reports whether it changed the list,
// which makes repeated application a no-op.

// Contains reports whether name is in set.
func Contains(set []string, name string) bool {
	return indexOf(set, name) >= 0
}

// AddToSet appends name when absent.
func AddToSet(set []string, name string) ([]string, bool) {
	if Contains(set, name) {
		return set, false
	}
	return append(set, name), true
}

// RemoveFromSet deletes name when present, keeping the order of the rest.
func RemoveFromSet(set []string, name string) ([]string, bool) {
	i := indexOf(set, name)
	if i < 0 {
		return set, false
	}
	out := make([]string, 0, len(set)-1)
	out = append(out, set[:i]...)
	out = append(out, set[i+1:]...)
	return out, true
}

func indexOf(set []string, name string) int {
	for i, entry := range set {
		if entry == name {
			return i
		}
	}
	return -1
}
