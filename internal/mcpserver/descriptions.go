package mcpserver

// Tool descriptions with interpretation guidance for LLMs.
// Each description explains what the tool does, when to use it,
// and how to interpret results.

func describeHooks() string {
	return `Classifies every method in Oxide/uMod plugin sources against a hook catalog.

USE WHEN:
- Linting a plugin before release or after a game update
- Finding misspelled hook names that silently never fire
- Locating deprecated hooks that need migration
- Checking whether a hook's parameter types still match the catalog

INTERPRETING RESULTS:
- valid_hook: method matches a catalog hook by name and parameter types
- deprecated: matches a hook the catalog has retired; the replacement signature is in the message
- used: not a hook, but reachable from plugin code (helpers, handlers)
- unused_with_suggestions: unreachable and close to a catalog hook name, almost always a typo
- unused: unreachable with no similar hook, candidate for removal
- exempt: infrastructure the engine calls implicitly (constructors, Init, Unload, properties)
- Suggestions are ordered best-first; the top entry is the likeliest intended hook

METRICS RETURNED:
- Per-method: file, line, classification, message, ranked suggestions
- Warnings: files that could not be parsed
- Summary: totals by classification and by file`
}

func describeDeadcode() string {
	return `Finds plugin methods unreachable from any hook, command handler, or timer registration.

USE WHEN:
- Cleaning up a plugin after removing features
- Shrinking large plugins before a rewrite
- Verifying that every helper is actually called
- Auditing forks that accumulated orphaned code

INTERPRETING RESULTS:
- Roots are catalog hooks plus methods referenced by registrations (commands, timers, callbacks)
- A dead method has no call path from any root
- Clusters group dead methods that only call each other, remove the whole cluster together
- With rank=true, live methods are ordered by PageRank centrality; high PageRank
  methods are load-bearing and deserve tests
- Dynamic invocation by name (reflection, plugin.Call) can cause false positives

METRICS RETURNED:
- Dead methods: file, line, class, reason, cluster id
- Ranked live methods: PageRank, in-degree, out-degree (when rank=true)
- Summary: total, root, reachable and dead method counts`
}

func describeSuggest() string {
	return `Ranks catalog hooks by similarity to a method name.

USE WHEN:
- A hook is not firing and the name may be misspelled
- Writing a new hook handler and unsure of the exact catalog name
- Migrating a plugin and looking for a renamed hook
- Exploring what hooks exist around a concept (connect, loot, spawn)

INTERPRETING RESULTS:
- Tiers: word-match > partial-match > levenshtein; higher tiers mean stronger evidence
- Within a tier, higher score means closer match
- word-match: shares whole name words (OnPlayerConected vs OnPlayerConnected)
- partial-match: one name contains the other
- levenshtein: small edit distance, catches single-character typos
- An empty result means nothing in the catalog resembles the name

METRICS RETURNED:
- Ranked suggestions: rendered hook signature, tier, score`
}

func describeCatalogs() string {
	return `Lists registered hook catalog versions with hook counts.

USE WHEN:
- Checking which game catalogs this server knows about
- Verifying a custom catalog directory was loaded
- Choosing a catalog version for the other tools

INTERPRETING RESULTS:
- Each entry is a version string accepted by the catalog parameter of other tools
- Deprecated counts how many retired hooks carry a replacement mapping

METRICS RETURNED:
- Per-catalog: version, hook count, deprecated hook count`
}

func describeValidate() string {
	return `Validates hook catalog files against the catalog schema.

USE WHEN:
- Authoring a custom catalog for a game or plugin framework
- Debugging why a catalog directory fails to load
- Reviewing a contributed catalog file before merging

INTERPRETING RESULTS:
- A result with an empty error is valid and reports its version and hook count
- Schema violations name the offending path inside the file
- Signature parse failures name the unparseable hook entry

METRICS RETURNED:
- Per-file: path, version, hook count, error detail for failures`
}
