// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package group

// Logf is a global diagnostic hook that the host can set during init()
// to capture informational messages from the engine (the engine logs
// the collision-recovery count of an invocation). The core never imports a
// logging package directly; it only ever calls out through this hook.
var Logf func(format string, args ...any)

func logf(f string, args ...any) {
	if Logf != nil {
		Logf(f, args...)
	}
}
