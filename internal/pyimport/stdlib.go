// SPDX-License-Identifier: MPL-2.0

package pyimport

import "github.com/pyflat/pyflat/internal/modname"

const futureModule = "__future__"

// stdlibModules holds the top-level module names shipped with CPython 3.
var stdlibModules = setOf(
	"__future__", "_abc", "_ast", "_asyncio", "_bisect", "_collections", "_collections_abc",
	"_contextvars", "_csv", "_ctypes", "_datetime", "_decimal", "_functools", "_heapq", "_io",
	"_json", "_locale", "_operator", "_pickle", "_random", "_socket", "_sqlite3", "_ssl",
	"_stat", "_string", "_struct", "_thread", "_threading_local", "_tracemalloc", "_warnings",
	"_weakref", "_weakrefset",
	"abc", "aifc", "antigravity", "argparse", "array", "ast", "asynchat", "asyncio", "asyncore",
	"atexit", "audioop", "base64", "bdb", "binascii", "bisect", "builtins", "bz2",
	"cProfile", "calendar", "cgi", "cgitb", "chunk", "cmath", "cmd", "code", "codecs", "codeop",
	"collections", "colorsys", "compileall", "concurrent", "configparser", "contextlib",
	"contextvars", "copy", "copyreg", "crypt", "csv", "ctypes", "curses",
	"dataclasses", "datetime", "dbm", "decimal", "difflib", "dis", "distutils", "doctest",
	"email", "encodings", "ensurepip", "enum", "errno",
	"faulthandler", "fcntl", "filecmp", "fileinput", "fnmatch", "fractions", "ftplib", "functools",
	"gc", "genericpath", "getopt", "getpass", "gettext", "glob", "graphlib", "grp", "gzip",
	"hashlib", "heapq", "hmac", "html", "http",
	"idlelib", "imaplib", "imghdr", "imp", "importlib", "inspect", "io", "ipaddress", "itertools",
	"json", "keyword", "lib2to3", "linecache", "locale", "logging", "lzma",
	"mailbox", "mailcap", "marshal", "math", "mimetypes", "mmap", "modulefinder", "msilib",
	"msvcrt", "multiprocessing",
	"netrc", "nis", "nntplib", "ntpath", "nturl2path", "numbers",
	"opcode", "operator", "optparse", "os", "ossaudiodev",
	"pathlib", "pdb", "pickle", "pickletools", "pipes", "pkgutil", "platform", "plistlib",
	"poplib", "posix", "posixpath", "pprint", "profile", "pstats", "pty", "pwd", "py_compile",
	"pyclbr", "pydoc", "pydoc_data", "pyexpat",
	"queue", "quopri", "random", "re", "readline", "reprlib", "resource", "rlcompleter", "runpy",
	"sched", "secrets", "select", "selectors", "shelve", "shlex", "shutil", "signal", "site",
	"smtpd", "smtplib", "sndhdr", "socket", "socketserver", "spwd", "sqlite3", "sre_compile",
	"sre_constants", "sre_parse", "ssl", "stat", "statistics", "string", "stringprep", "struct",
	"subprocess", "sunau", "symtable", "sys", "sysconfig", "syslog",
	"tabnanny", "tarfile", "telnetlib", "tempfile", "termios", "textwrap", "this", "threading",
	"time", "timeit", "tkinter", "token", "tokenize", "tomllib", "trace", "traceback",
	"tracemalloc", "tty", "turtle", "turtledemo", "types", "typing",
	"unicodedata", "unittest", "urllib", "uu", "uuid",
	"venv", "warnings", "wave", "weakref", "webbrowser", "winreg", "winsound", "wsgiref",
	"xdrlib", "xml", "xmlrpc", "zipapp", "zipfile", "zipimport", "zlib", "zoneinfo",
)

func setOf(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Classifier decides whether an import origin belongs to the standard library.
type Classifier struct {
	extra map[string]struct{}
}

// NewClassifier returns a classifier that also treats the extra top-level
// module names as standard library.
func NewClassifier(extra ...string) *Classifier {
	return &Classifier{extra: setOf(extra...)}
}

// IsStdlib reports whether the root segment of origin is a standard library
// module.
func (c *Classifier) IsStdlib(origin string) bool {
	root := modname.Root(origin)
	if _, ok := stdlibModules[root]; ok {
		return true
	}
	_, ok := c.extra[root]
	return ok
}
