/*
Package config manages configuration loading, writing and watching for kousei.

	            +-------------+
	            |    Store    |
	            | (file+env)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+-----+ +----+----+ +-----+-----+
	|   YAML    | |   HCL   | |   JSON    |
	|  Parser   | | Parser  | |  Parser   |
	+-----------+ +---------+ +-----------+

🎯 Purpose:
- Loads the API key, model, proxy and locale settings
- Loads user-defined proofreading rules
- Writes single keys back in the file's own format
- Reloads the file when it changes on disk

🔄 Flow:
1. Picks a parser from the file extension
2. Parses and validates the file (a missing file means defaults)
3. Applies environment overrides (KOUSEI_API_KEY, ANTHROPIC_API_KEY, KOUSEI_MODEL, KOUSEI_PROXY_URL)
4. Fills defaults (model, locale)

📝 Design Philosophy:
Writes never persist values that came from the environment: the Store keeps the file
view and the effective view separately, and Set only edits the former.

🔍 Example:

	store, err := config.Open(ctx, config.DefaultPath())
	if err != nil {
		return err
	}

	if store.APIKey() == "" {
		if err := store.SaveAPIKey(ctx, key); err != nil {
			return err
		}
	}

	go store.Watch(ctx, func(cfg *config.Config) {
		logger.Info().Str("config", cfg.String()).Msg("reloaded")
	})
*/
package config
