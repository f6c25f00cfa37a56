/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package version

// License identifies one of a small set of well-known open-source licenses
// netloopd can report itself (or a dependency) under.
type License uint8

const (
	License_MIT License = iota
	License_Apache_v2
	License_BSD_v3
	License_GNU_GPL_v3
	License_MPL_v2
)

type licenseInfo struct {
	name    string
	legal   string
	boiler  string
}

var licenses = map[License]licenseInfo{
	License_MIT: {
		name:  "MIT License",
		legal: "Permission is hereby granted, free of charge, to use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the Software.",
		boiler: "MIT License\n\nPermission is hereby granted, free of charge, to any person obtaining a copy " +
			"of this software and associated documentation files, to deal in the Software without " +
			"restriction, including without limitation the rights to use, copy, modify, merge, publish, " +
			"distribute, sublicense, and/or sell copies of the Software.",
	},
	License_Apache_v2: {
		name:  "Apache License 2.0",
		legal: "Licensed under the Apache License, Version 2.0; you may not use this file except in compliance with the License.",
		boiler: "Apache License\nVersion 2.0\n\nLicensed under the Apache License, Version 2.0 (the \"License\"); " +
			"you may not use this file except in compliance with the License. You may obtain a copy of " +
			"the License at http://www.apache.org/licenses/LICENSE-2.0.",
	},
	License_BSD_v3: {
		name:  "BSD 3-Clause License",
		legal: "Redistribution and use in source and binary forms, with or without modification, are permitted under the conditions of the 3-Clause BSD License.",
		boiler: "BSD 3-Clause License\n\nRedistribution and use in source and binary forms, with or without " +
			"modification, are permitted provided that the conditions of the 3-Clause BSD License are met.",
	},
	License_GNU_GPL_v3: {
		name:  "GNU GENERAL PUBLIC LICENSE v3",
		legal: "This program is free software: you can redistribute it and/or modify it under the terms of the GNU General Public License as published by the Free Software Foundation, version 3.",
		boiler: "GNU GENERAL PUBLIC LICENSE\nVersion 3\n\nThis program is free software: you can redistribute it " +
			"and/or modify it under the terms of the GNU General Public License as published by the Free " +
			"Software Foundation, either version 3 of the License, or (at your option) any later version.",
	},
	License_MPL_v2: {
		name:  "Mozilla Public License 2.0",
		legal: "This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.",
		boiler: "Mozilla Public License, v. 2.0\n\nThis Source Code Form is subject to the terms of the Mozilla " +
			"Public License, v. 2.0. If a copy of the MPL was not distributed with this file, You can " +
			"obtain one at https://mozilla.org/MPL/2.0/.",
	},
}

func (l License) info() licenseInfo {
	if i, ok := licenses[l]; ok {
		return i
	}
	return licenses[License_MIT]
}
