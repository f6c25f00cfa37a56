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

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"
)

// Version exposes the build/release metadata netloopd prints for --version
// and --license.
type Version interface {
	GetPackage() string
	GetDescription() string
	GetBuild() string
	GetRelease() string
	GetAuthor() string
	GetPrefix() string
	GetDate() string
	GetTime() time.Time
	GetAppId() string
	GetHeader() string
	GetInfo() string
	GetRootPackagePath() string

	GetLicenseName() string
	GetLicenseLegal() string
	GetLicenseBoiler(extra ...License) string
	GetLicenseFull(extra ...License) string

	CheckGo(required, operator string) error

	PrintInfo()
	PrintLicense(extra ...License)
}

type version struct {
	license License
	pkg     string
	desc    string
	date    time.Time
	build   string
	release string
	author  string
	prefix  string
	root    string
}

// NewVersion builds a Version. date is parsed as RFC3339; an unparsable or
// empty date falls back to time.Now(). pkg falls back to the package name
// derived, via reflect, from customInterface's type — walking up
// numSubPackage path segments from there to find the root import path.
func NewVersion(license License, pkg, desc, date, build, release, author, prefix string, customInterface interface{}, numSubPackage int) Version {
	t, err := time.Parse(time.RFC3339, date)
	if err != nil {
		t = time.Now()
	}

	root := rootPackagePath(customInterface, numSubPackage)
	if pkg == "" {
		pkg = packageNameFromPath(root)
	}

	return &version{
		license: license,
		pkg:     pkg,
		desc:    desc,
		date:    t,
		build:   build,
		release: release,
		author:  author,
		prefix:  strings.ToUpper(prefix),
		root:    root,
	}
}

func rootPackagePath(customInterface interface{}, numSubPackage int) string {
	path := reflect.TypeOf(customInterface).PkgPath()
	for i := 0; i < numSubPackage; i++ {
		if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
			path = path[:idx]
		} else {
			break
		}
	}
	return path
}

func packageNameFromPath(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}
	return path
}

func (v *version) GetPackage() string     { return v.pkg }
func (v *version) GetDescription() string { return v.desc }
func (v *version) GetBuild() string       { return v.build }
func (v *version) GetRelease() string     { return v.release }
func (v *version) GetPrefix() string      { return v.prefix }
func (v *version) GetDate() string        { return v.date.Format(time.RFC1123) }
func (v *version) GetTime() time.Time     { return v.date }
func (v *version) GetRootPackagePath() string { return v.root }

func (v *version) GetAuthor() string {
	return fmt.Sprintf("%s (source: %s)", v.author, v.root)
}

func (v *version) GetAppId() string {
	return fmt.Sprintf("%s-%s (%s/%s Runtime %s)", v.pkg, v.release, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func (v *version) GetHeader() string {
	return fmt.Sprintf("%s %s (build %s)", v.pkg, v.release, v.build)
}

func (v *version) GetInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Package: %s\n", v.pkg)
	fmt.Fprintf(&b, "Description: %s\n", v.desc)
	fmt.Fprintf(&b, "Release: %s\n", v.release)
	fmt.Fprintf(&b, "Build: %s\n", v.build)
	fmt.Fprintf(&b, "Date: %s\n", v.GetDate())
	fmt.Fprintf(&b, "Author: %s\n", v.GetAuthor())
	fmt.Fprintf(&b, "License: %s\n", v.GetLicenseName())
	return b.String()
}

func (v *version) GetLicenseName() string  { return v.license.info().name }
func (v *version) GetLicenseLegal() string { return v.license.info().legal }

func (v *version) GetLicenseBoiler(extra ...License) string {
	parts := []string{v.license.info().boiler}
	for _, l := range extra {
		parts = append(parts, l.info().boiler)
	}
	return strings.Join(parts, "\n\n")
}

func (v *version) GetLicenseFull(extra ...License) string {
	return v.GetHeader() + "\n\n" + v.GetLicenseBoiler(extra...)
}

// PrintInfo writes GetInfo to stderr, matching the teacher's
// print-status-to-stderr convention for CLI diagnostics.
func (v *version) PrintInfo() {
	fmt.Fprintln(os.Stderr, v.GetHeader())
	fmt.Fprint(os.Stderr, v.GetInfo())
}

// PrintLicense writes GetLicenseBoiler to stderr.
func (v *version) PrintLicense(extra ...License) {
	fmt.Fprintln(os.Stderr, v.GetLicenseBoiler(extra...))
}
