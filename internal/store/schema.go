package store

// Schema v1 - catalog tables
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS consoles (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  upstream_id INTEGER UNIQUE NOT NULL,
  name TEXT NOT NULL,
  slug TEXT UNIQUE NOT NULL,
  manufacturer TEXT,
  type TEXT,
  release_year INTEGER,
  description TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Developers and publishers; upstream_id is not always known
CREATE TABLE IF NOT EXISTS corporations (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  upstream_id INTEGER UNIQUE,
  name TEXT UNIQUE NOT NULL,
  slug TEXT UNIQUE NOT NULL,
  logo_url TEXT
);

CREATE TABLE IF NOT EXISTS corporation_roles (
  corporation_id INTEGER NOT NULL REFERENCES corporations(id) ON DELETE CASCADE,
  role TEXT NOT NULL,
  PRIMARY KEY (corporation_id, role)
);

CREATE TABLE IF NOT EXISTS families (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  upstream_id INTEGER UNIQUE,
  name TEXT UNIQUE NOT NULL,
  slug TEXT UNIQUE NOT NULL
);

-- Genre reference table keyed by the upstream genre id
CREATE TABLE IF NOT EXISTS genres (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  short_name TEXT,
  parent_id INTEGER NOT NULL DEFAULT 0,
  is_main INTEGER NOT NULL DEFAULT 1,
  color TEXT
);

CREATE TABLE IF NOT EXISTS games (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  console_id INTEGER NOT NULL REFERENCES consoles(id) ON DELETE CASCADE,
  upstream_id INTEGER NOT NULL,
  title TEXT NOT NULL,
  slug TEXT NOT NULL,
  release_year INTEGER,
  description TEXT,
  rating INTEGER CHECK (rating IS NULL OR (rating >= 0 AND rating <= 20)),
  players INTEGER,
  rotation INTEGER,
  resolution TEXT,
  top_staff INTEGER NOT NULL DEFAULT 0,
  developer_id INTEGER REFERENCES corporations(id) ON DELETE SET NULL,
  publisher_id INTEGER REFERENCES corporations(id) ON DELETE SET NULL,
  family_id INTEGER REFERENCES families(id) ON DELETE SET NULL,
  genre_id INTEGER REFERENCES genres(id) ON DELETE SET NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (console_id, upstream_id),
  UNIQUE (console_id, slug)
);

CREATE TABLE IF NOT EXISTS game_regional_titles (
  game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
  region TEXT NOT NULL,
  title TEXT NOT NULL,
  PRIMARY KEY (game_id, region)
);

CREATE TABLE IF NOT EXISTS game_regional_dates (
  game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
  region TEXT NOT NULL,
  release_date TEXT NOT NULL,
  year INTEGER NOT NULL,
  PRIMARY KEY (game_id, region)
);

-- Remote media pointers; bytes are fetched on demand by readers
CREATE TABLE IF NOT EXISTS media_url_cache (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  entity_type TEXT NOT NULL CHECK (entity_type IN ('console', 'game')),
  entity_id INTEGER NOT NULL,
  media_type TEXT NOT NULL,
  region TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  upstream_id INTEGER NOT NULL,
  format TEXT,
  size_bytes INTEGER,
  cached_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (entity_type, entity_id, media_type, region)
);
`

// Schema v2 - lookup indexes
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_games_upstream_id ON games(upstream_id);
CREATE INDEX IF NOT EXISTS idx_games_genre_id ON games(genre_id);
CREATE INDEX IF NOT EXISTS idx_games_developer_id ON games(developer_id);
CREATE INDEX IF NOT EXISTS idx_games_publisher_id ON games(publisher_id);
CREATE INDEX IF NOT EXISTS idx_media_url_cache_entity ON media_url_cache(entity_type, entity_id);
`
